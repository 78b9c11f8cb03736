package log

import "testing"

func TestDirectionString(t *testing.T) {
	tests := []struct {
		dir  Direction
		want string
	}{
		{DirectionIn, "IN"},
		{DirectionOut, "OUT"},
		{Direction(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.dir.String()
		if got != tt.want {
			t.Errorf("Direction(%d).String() = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

func TestLayerString(t *testing.T) {
	tests := []struct {
		layer Layer
		want  string
	}{
		{LayerTransport, "TRANSPORT"},
		{LayerCodec, "CODEC"},
		{LayerSession, "SESSION"},
		{LayerInstrument, "INSTRUMENT"},
		{LayerRegistry, "REGISTRY"},
		{Layer(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.layer.String()
		if got != tt.want {
			t.Errorf("Layer(%d).String() = %q, want %q", tt.layer, got, tt.want)
		}
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		cat  Category
		want string
	}{
		{CategoryCommand, "COMMAND"},
		{CategoryState, "STATE"},
		{CategoryDiscovery, "DISCOVERY"},
		{CategoryError, "ERROR"},
		{Category(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.cat.String()
		if got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.cat, got, tt.want)
		}
	}
}

func TestStateEntityString(t *testing.T) {
	tests := []struct {
		entity StateEntity
		want   string
	}{
		{StateEntitySession, "SESSION"},
		{StateEntityAcquisition, "ACQUISITION"},
		{StateEntityDevice, "DEVICE"},
		{StateEntity(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.entity.String()
		if got != tt.want {
			t.Errorf("StateEntity(%d).String() = %q, want %q", tt.entity, got, tt.want)
		}
	}
}

func TestDirectionValues(t *testing.T) {
	// Verify explicit values for wire stability
	if DirectionIn != 0 {
		t.Errorf("DirectionIn = %d, want 0", DirectionIn)
	}
	if DirectionOut != 1 {
		t.Errorf("DirectionOut = %d, want 1", DirectionOut)
	}
}

func TestLayerValues(t *testing.T) {
	// Verify explicit values for wire stability
	if LayerTransport != 0 {
		t.Errorf("LayerTransport = %d, want 0", LayerTransport)
	}
	if LayerCodec != 1 {
		t.Errorf("LayerCodec = %d, want 1", LayerCodec)
	}
	if LayerSession != 2 {
		t.Errorf("LayerSession = %d, want 2", LayerSession)
	}
	if LayerInstrument != 3 {
		t.Errorf("LayerInstrument = %d, want 3", LayerInstrument)
	}
	if LayerRegistry != 4 {
		t.Errorf("LayerRegistry = %d, want 4", LayerRegistry)
	}
}

func TestCategoryValues(t *testing.T) {
	// Verify explicit values for wire stability
	if CategoryCommand != 0 {
		t.Errorf("CategoryCommand = %d, want 0", CategoryCommand)
	}
	if CategoryState != 1 {
		t.Errorf("CategoryState = %d, want 1", CategoryState)
	}
	if CategoryDiscovery != 2 {
		t.Errorf("CategoryDiscovery = %d, want 2", CategoryDiscovery)
	}
	if CategoryError != 3 {
		t.Errorf("CategoryError = %d, want 3", CategoryError)
	}
}

func TestStateEntityValues(t *testing.T) {
	// Verify explicit values for wire stability
	if StateEntitySession != 0 {
		t.Errorf("StateEntitySession = %d, want 0", StateEntitySession)
	}
	if StateEntityAcquisition != 1 {
		t.Errorf("StateEntityAcquisition = %d, want 1", StateEntityAcquisition)
	}
	if StateEntityDevice != 2 {
		t.Errorf("StateEntityDevice = %d, want 2", StateEntityDevice)
	}
}
