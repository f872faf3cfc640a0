package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	code, err := NewCode("TRK", 8)
	require.NoError(t, err)
	assert.Len(t, code, 12)
	assert.True(t, IsCode(code, "TRK", 8))
}

func TestNewCode_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		code, err := NewCode("PD", 6)
		require.NoError(t, err)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode("TRK-ABCD2345", "TRK", 8))
	assert.False(t, IsCode("TRK-ABCD234", "TRK", 8))
	assert.False(t, IsCode("TRK-ABCD234O", "TRK", 8), "O is not in the alphabet")
	assert.False(t, IsCode("PD-ABCD2345", "TRK", 8))
	assert.False(t, IsCode("TRKXABCD2345", "TRK", 8))
}

func TestActor_HasPermission(t *testing.T) {
	a := Actor{Type: ActorTypeAdmin, Permissions: []string{"cases:read", "pii:unmask"}}
	assert.True(t, a.HasPermission("pii:unmask"))
	assert.False(t, a.HasPermission("users:manage"))
	assert.Equal(t, ActorTypeSystem, SystemActor().Type)
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{PageSize: 500}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.PageSize)
	assert.Equal(t, "created_at", f.OrderBy)
	assert.Equal(t, "desc", f.OrderDir)
	assert.NotNil(t, f.Filters)
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 41, 1, 20)
	assert.Equal(t, 3, p.TotalPages)
}

func TestNormalizeCity(t *testing.T) {
	assert.Equal(t, "Milton Keynes", NormalizeCity("  milton   KEYNES "))
	assert.Equal(t, "", NormalizeCity("   "))
	assert.True(t, SameCity("leeds", "LEEDS "))
	assert.False(t, SameCity("", ""))
}
