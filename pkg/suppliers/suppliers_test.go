package suppliers

import (
	"testing"

	"github.com/matzehuels/partscout/pkg/errors"
	"github.com/matzehuels/partscout/pkg/integrations"
)

func TestAllDefinitionsAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range All(integrations.Options{}) {
		if err := errors.ValidateSupplierID(d.ID); err != nil {
			t.Errorf("%s: %v", d.ID, err)
		}
		if seen[d.ID] {
			t.Errorf("duplicate id %s", d.ID)
		}
		seen[d.ID] = true
		if d.Name == "" || d.New == nil {
			t.Errorf("%s: incomplete definition", d.ID)
		}
		if d.New() == nil {
			t.Errorf("%s: New returned nil", d.ID)
		}
	}
}

func TestFind(t *testing.T) {
	if d := Find("ti", integrations.Options{}); d == nil || d.Name != "Texas Instruments" {
		t.Errorf("Find(ti) = %v", d)
	}
	if d := Find("mouser", integrations.Options{}); d != nil {
		t.Errorf("Find(mouser) = %v, want nil", d)
	}
}

func TestIDs(t *testing.T) {
	ids := IDs()
	if len(ids) != 2 || ids[0] != "future" || ids[1] != "ti" {
		t.Errorf("IDs() = %v", ids)
	}
}
