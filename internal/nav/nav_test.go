package nav

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	s := NewState("root", "My Drive")

	assert.Equal(t, "root", s.CurrentFolderID())
	assert.True(t, s.AtRoot())
	assert.Equal(t, []Crumb{{ID: "root", Name: "My Drive"}}, s.Breadcrumbs())
	assert.Empty(t, s.BackStack())
}

func TestEnterFolderAndGoBack(t *testing.T) {
	s := NewState("root", "My Drive")

	s.EnterFolder("A", "Docs")

	assert.Equal(t, "A", s.CurrentFolderID())
	assert.Equal(t, []Crumb{{ID: "root", Name: "My Drive"}, {ID: "A", Name: "Docs"}}, s.Breadcrumbs())
	assert.Equal(t, []string{"root"}, s.BackStack())

	moved := s.GoBack()

	assert.True(t, moved)
	assert.Equal(t, "root", s.CurrentFolderID())
	assert.Equal(t, []Crumb{{ID: "root", Name: "My Drive"}}, s.Breadcrumbs())
	assert.Empty(t, s.BackStack())
}

func TestGoBack_AtRootIsNoOp(t *testing.T) {
	s := NewState("root", "My Drive")

	assert.False(t, s.GoBack())
	assert.Equal(t, "root", s.CurrentFolderID())
	assert.Len(t, s.Breadcrumbs(), 1)
}

// Entering n folders and going back n times must restore both the current
// folder and the trail exactly.
func TestEnterThenBack_Symmetry(t *testing.T) {
	for _, depth := range []int{1, 2, 5, 10} {
		t.Run(fmt.Sprintf("depth %d", depth), func(t *testing.T) {
			s := NewState("root", "My Drive")
			originalTrail := s.Breadcrumbs()

			for i := 0; i < depth; i++ {
				s.EnterFolder(fmt.Sprintf("folder%d", i), fmt.Sprintf("Folder %d", i))
			}
			for i := 0; i < depth; i++ {
				require.True(t, s.GoBack())
			}

			assert.Equal(t, "root", s.CurrentFolderID())
			assert.Equal(t, originalTrail, s.Breadcrumbs())
			assert.Empty(t, s.BackStack())
		})
	}
}

func TestJumpToBreadcrumb(t *testing.T) {
	// Build a trail of five entries: root, A, B, C, D
	s := NewState("root", "My Drive")
	s.EnterFolder("A", "A")
	s.EnterFolder("B", "B")
	s.EnterFolder("C", "C")
	s.EnterFolder("D", "D")

	// Jump to the third of five trail entries
	moved := s.JumpToBreadcrumb("B")
	require.True(t, moved)

	trail := s.Breadcrumbs()
	require.Len(t, trail, 3)
	assert.Equal(t, "B", trail[2].ID)
	assert.Equal(t, "B", s.CurrentFolderID())

	// The pre-jump folder id is pushed onto the back-stack
	stack := s.BackStack()
	assert.Equal(t, "D", stack[len(stack)-1])
}

func TestJumpToBreadcrumb_CurrentFolderIsNoOp(t *testing.T) {
	s := NewState("root", "My Drive")
	s.EnterFolder("A", "A")

	assert.False(t, s.JumpToBreadcrumb("A"))
	assert.Equal(t, "A", s.CurrentFolderID())
	assert.Len(t, s.Breadcrumbs(), 2)
}

func TestJumpToBreadcrumb_UnknownIDIsIgnored(t *testing.T) {
	s := NewState("root", "My Drive")
	s.EnterFolder("A", "A")

	// A stale UI reference to an id no longer in the trail is ignored
	assert.False(t, s.JumpToBreadcrumb("Z"))
	assert.Equal(t, "A", s.CurrentFolderID())
	assert.Equal(t, []string{"root"}, s.BackStack())
}

func TestGoBack_AfterJumpReturnsToPreJumpFolder(t *testing.T) {
	s := NewState("root", "My Drive")
	s.EnterFolder("A", "A")
	s.EnterFolder("B", "B")
	s.EnterFolder("C", "C")

	require.True(t, s.JumpToBreadcrumb("A"))
	require.Equal(t, "A", s.CurrentFolderID())

	require.True(t, s.GoBack())
	assert.Equal(t, "C", s.CurrentFolderID())
}

func TestSetRootName(t *testing.T) {
	s := NewState("root", "My Drive")

	s.SetRootName("Team Drive")
	assert.Equal(t, "Team Drive", s.Breadcrumbs()[0].Name)

	// Empty names are ignored so a failed lookup keeps the default
	s.SetRootName("")
	assert.Equal(t, "Team Drive", s.Breadcrumbs()[0].Name)
}

// Scenario from the navigation design: root trail [{root, My Drive}],
// enter Docs, then go back.
func TestRootEnterBackScenario(t *testing.T) {
	s := NewState("root", "My Drive")

	s.EnterFolder("A", "Docs")
	assert.Equal(t, []Crumb{{ID: "root", Name: "My Drive"}, {ID: "A", Name: "Docs"}}, s.Breadcrumbs())
	assert.Equal(t, []string{"root"}, s.BackStack())

	require.True(t, s.GoBack())
	assert.Equal(t, []Crumb{{ID: "root", Name: "My Drive"}}, s.Breadcrumbs())
	assert.Empty(t, s.BackStack())
	assert.Equal(t, "root", s.CurrentFolderID())
}

func TestBreadcrumbsReturnsCopy(t *testing.T) {
	s := NewState("root", "My Drive")
	s.EnterFolder("A", "Docs")

	trail := s.Breadcrumbs()
	trail[0].Name = "mutated"

	assert.Equal(t, "My Drive", s.Breadcrumbs()[0].Name)
}
