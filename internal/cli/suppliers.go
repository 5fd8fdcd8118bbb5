package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/partscout/pkg/integrations"
	"github.com/matzehuels/partscout/pkg/supplier"
	"github.com/matzehuels/partscout/pkg/suppliers"
)

// suppliersCommand creates the suppliers command.
func (c *CLI) suppliersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "suppliers",
		Short: "List available suppliers and which of them are configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSuppliers()
		},
	}
}

func (c *CLI) runSuppliers() error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	opts := integrations.Options{Logger: c.Logger}
	reg := supplier.NewRegistry(suppliers.All(opts), supplier.WithLogger(c.Logger))
	loadedCount := reg.Configure(cfg.Global(), cfg.Sections())
	loaded := reg.Loaded()

	available := reg.Available()
	fmt.Println(StyleTitle.Render("Suppliers") + StyleDim.Render(fmt.Sprintf(" · %d of %d loaded", loadedCount, len(available))))
	for _, id := range available {
		status := styleIconError.Render(iconError)
		if _, ok := loaded[id.ID]; ok {
			status = styleIconSuccess.Render(iconSuccess)
		}
		fmt.Printf("%s %-8s %s %s\n", status, id.ID, StyleValue.Render(id.Name), StyleDim.Render("("+id.SupportLevel.String()+")"))

		if section, ok := reg.ConfigOf(id.ID); ok {
			def := suppliers.Find(id.ID, opts)
			masked := section.Masked(def)
			for _, p := range def.Params {
				if v := masked[p.Name]; v != "" {
					printDetail("%s = %s", p.Name, v)
				}
			}
		}
	}
	if loadedCount < len(available) {
		printNewline()
		printDetail("Configure suppliers in %s", c.suppliersFile(cfg))
	}
	return nil
}
