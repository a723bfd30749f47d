package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNavigation_Toggle(t *testing.T) {
	n := NewNavigation()
	assert.False(t, n.IsOpen())

	assert.True(t, n.Toggle())
	assert.True(t, n.IsOpen())
	assert.False(t, n.Toggle())

	n.Open()
	n.Open()
	assert.True(t, n.IsOpen())
	n.Close()
	assert.False(t, n.IsOpen())
}

func TestNavigation_Navigate(t *testing.T) {
	n := NewNavigation()
	n.Open()

	assert.True(t, n.Navigate("/customers"))
	st := n.State()
	assert.Equal(t, "/customers", st.Active)
	assert.False(t, st.Open)

	assert.False(t, n.Navigate("/reports"))
	assert.Equal(t, "/customers", n.State().Active)
}

func TestNavigation_Independent(t *testing.T) {
	a, b := NewNavigation(), NewNavigation()
	a.Toggle()
	assert.True(t, a.IsOpen())
	assert.False(t, b.IsOpen())
}

func TestItems(t *testing.T) {
	got := Items()
	assert.Equal(t, []string{"Orders", "Products", "Customers"}, []string{got[0].Label, got[1].Label, got[2].Label})

	got[0].Label = "changed"
	assert.Equal(t, "Orders", Items()[0].Label)
}
