package command

// NewGameRegistry registers every game command against deps.
func NewGameRegistry(deps *Dependencies) *Registry {
	registry := NewRegistry()
	registry.mustRegister(
		NewStartCommand(deps),
		NewHintCommand(deps),
		NewGuessCommand(deps),
		NewScoreCommand(deps),
		NewStatsCommand(deps),
		NewHelpCommand(deps),
	)
	return registry
}
