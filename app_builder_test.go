package atmos

import "testing"

type MockModule struct {
	installed bool
}

func (m *MockModule) Install(app *App, commands *Commands) {
	m.installed = true
}

type orderModule struct {
	name  string
	order *[]string
}

func (m orderModule) Install(app *App, commands *Commands) {
	*m.order = append(*m.order, m.name)
}

func TestAppBuilder_Stateless(t *testing.T) {
	app := NewAppBuilder().Build()

	if app.ID == "" {
		t.Errorf("Expected app ID to be set")
	}
	if len(app.stages) != len(defaultStages) {
		t.Errorf("Expected %d stages, got %d", len(defaultStages), len(app.stages))
	}
}

func TestAppBuilder_UseModule(t *testing.T) {
	builder := NewAppBuilder()
	mockModule := &MockModule{}
	builder.UseModule(mockModule)

	if len(builder.modules) != 1 {
		t.Errorf("Expected modules to contain 1 module, got %v", len(builder.modules))
	}
	if mockModule.installed {
		t.Errorf("Install should wait for Build")
	}
}

func TestAppBuilder_Build_WithMultipleModules(t *testing.T) {
	var order []string
	builder := NewAppBuilder()
	builder.UseModule(orderModule{"a", &order}, orderModule{"b", &order})
	builder.UseModule(orderModule{"c", &order})

	app := builder.Build()

	if len(app.modules) != 3 {
		t.Errorf("Expected 3 modules, got %v", len(app.modules))
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("Expected modules installed in order, got %v", order)
	}
}

func TestAppBuilder_Build_Installs(t *testing.T) {
	module := &MockModule{}
	NewAppBuilder().UseModule(module).Build()

	if !module.installed {
		t.Errorf("Expected Install to be called on the module, but it was not")
	}
}
