package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/partscout/pkg/supplier"
)

func TestSpinnerCountsAnsweredSuppliers(t *testing.T) {
	d := newTestDispatcher(t, map[string]*stubAdapter{
		"alpha": {delay: 150 * time.Millisecond},
		"beta":  {},
		"gamma": {},
	})
	handles, err := d.Search(context.Background(), "LM358", supplier.Route{})
	require.NoError(t, err)

	var buf bytes.Buffer
	s := newSearchSpinner(context.Background(), &buf, "LM358", handles)
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return s.Answered() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Searching LM358 · 2/3 suppliers answered", s.message())

	require.Eventually(t, func() bool { return s.Answered() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Searching LM358 · 3/3 suppliers answered", s.message())
}

func TestSpinnerRendersAndClears(t *testing.T) {
	var buf bytes.Buffer
	s := newSearchSpinner(context.Background(), &buf, "NE555", make([]*supplier.Handle, 2))

	s.render("⠋")
	assert.Contains(t, buf.String(), "0/2 suppliers answered")

	buf.Reset()
	s.Suspend(func() { buf.WriteString("record") })
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\r "), "line is blanked first: %q", out)
	assert.True(t, strings.HasSuffix(out, "\rrecord"), "record follows the cleared line: %q", out)

	buf.Reset()
	s.Suspend(func() {})
	assert.Empty(t, buf.String(), "nothing to clear after a suspend")
}

func TestSpinnerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	s := newSearchSpinner(ctx, &buf, "LM358", nil)
	s.Start()

	cancel()
	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner did not stop after cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSearchSpinner(context.Background(), &bytes.Buffer{}, "LM358", nil)
	s.Start()
	s.Stop()
	s.Stop()

	unstarted := newSearchSpinner(context.Background(), &bytes.Buffer{}, "LM358", nil)
	unstarted.Stop()
}
