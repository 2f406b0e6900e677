package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocationFrom(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		center   string
		code     string
		expected string
		movable  bool
		mounted  bool
	}{
		{name: "mounted", kind: "equipo", center: "Puerto Montt", code: "EQ-01", expected: "Puerto Montt · EQ-01", mounted: true},
		{name: "mounted without center", kind: "equipo", code: "EQ-01", expected: "— · EQ-01", mounted: true},
		{name: "warehouse", kind: "bodega", center: "Calbuco", expected: "Bodega · Calbuco", movable: true},
		{name: "office warehouse", kind: "bodega", expected: "Bodega · Oficina", movable: true},
		{name: "transit", kind: "transito", center: "Chonchi", expected: "Tránsito → Chonchi"},
		{name: "reserve", kind: "reserva", center: "ignored", expected: "Reserva", movable: true},
		{name: "unknown kind is reserve", kind: "", expected: "Reserva", movable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := LocationFrom(tt.kind, tt.center, tt.code)
			assert.Equal(t, tt.expected, loc.String())
			assert.Equal(t, tt.movable, loc.Movable())
			assert.Equal(t, tt.mounted, loc.Mounted())
		})
	}
}

func TestRoleFromTypeName(t *testing.T) {
	assert.Equal(t, RoleROV, RoleFromTypeName("ROV Observación"))
	assert.Equal(t, RoleController, RoleFromTypeName("Controlador"))
	assert.Equal(t, RoleUmbilical, RoleFromTypeName("umbilical 300m"))
	assert.Equal(t, RoleSensor, RoleFromTypeName("Sensor oxígeno"))
	assert.Equal(t, RoleGrabber, RoleFromTypeName("Grabber"))
	assert.Equal(t, RoleUnknown, RoleFromTypeName(" "))
	assert.Equal(t, "CAMARA", RoleFromTypeName("camara"))
}

func TestCodeSuffix(t *testing.T) {
	assert.Equal(t, "012", CodeSuffix("ROV-012"))
	assert.Equal(t, "012", CodeSuffix("CTRL-012-B"))
	assert.Equal(t, "", CodeSuffix("ROV012"))
}

func TestAssemblyRules(t *testing.T) {
	comps := []Attached{
		{ID: "1", Code: "ROV-7", Role: RoleROV},
		{ID: "2", Code: "CTL-7", Role: RoleController},
		{ID: "3", Code: "SEN-1", Role: RoleSensor},
	}

	assert.False(t, CoreOK(comps))
	assert.True(t, Paired(comps))

	withUmbilical := append(comps, Attached{ID: "4", Code: "UMB-1", Role: RoleUmbilical})
	assert.True(t, CoreOK(withUmbilical))

	comps[1].Code = "CTL-8"
	assert.False(t, Paired(comps))
	assert.False(t, Paired(nil))

	t.Run("unique roles rejected twice", func(t *testing.T) {
		err := CanAddComponent(comps, RoleROV)
		assert.Error(t, err)
		assert.Equal(t, "errors.role_taken", ClassifyError(err).Key)
		assert.Equal(t, KindDomain, ClassifyError(err).Kind)
	})

	t.Run("sensors repeat", func(t *testing.T) {
		assert.NoError(t, CanAddComponent(comps, RoleSensor))
		assert.NoError(t, CanAddComponent(comps, RoleGrabber))
	})
}
