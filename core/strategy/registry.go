package strategy

import "github.com/kilianp07/yard/core/factory"

var registry = factory.NewRegistry[Strategy]()

func init() {
	_ = Register("simple", func(conf map[string]any) (Strategy, error) {
		if err := factory.Decode(conf, &struct{}{}); err != nil {
			return nil, err
		}
		return NewSimple(), nil
	})
	_ = Register("expert", func(conf map[string]any) (Strategy, error) {
		cfg := DefaultExpertConfig()
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, err
		}
		return NewExpert(cfg)
	})
}

// Register adds a strategy factory identified by name.
func Register(name string, f factory.Factory[Strategy]) error {
	return registry.Register(name, f)
}

// New creates a strategy from its configuration. Unset fields keep their
// defaults.
func New(cfg factory.ModuleConfig) (Strategy, error) {
	return registry.Create(cfg)
}

// Names lists the registered strategies.
func Names() []string { return registry.Names() }
