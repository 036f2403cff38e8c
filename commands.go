package atmos

type Commands struct {
	app *App
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) UseSystem(system systemScheduleBuilder) *Commands {
	cmd.app.UseSystem(system)
	return cmd
}

// OnShutdown registers fn to run when the app stops. Hooks run last-registered first.
func (cmd *Commands) OnShutdown(fn func()) *Commands {
	cmd.app.cleanup = append(cmd.app.cleanup, fn)
	return cmd
}

// Exit stops Run after the current tick.
func (cmd *Commands) Exit() {
	cmd.app.exiting = true
}
