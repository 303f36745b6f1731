package nav

// Crumb is one element of the breadcrumb trail.
type Crumb struct {
	// ID is the folder id this crumb points at
	ID string

	// Name is the display name shown in the trail
	Name string
}

// State tracks the current folder, the back-stack of previously visited
// folder ids, and the breadcrumb trail from root to the current folder.
//
// The back-stack and the trail are maintained independently: a jump
// truncates the visible trail past the target while the back-stack only
// ever grows by one per hop. Deriving one from the other would either lose
// back history on a jump or corrupt the visible path.
//
// Invariant after every completed transition: the trail is non-empty (the
// root crumb is permanent) and its last crumb's id equals the current
// folder.
type State struct {
	current   string
	backStack []string
	trail     []Crumb
}

// NewState creates a navigation state rooted at the given folder.
func NewState(rootID, rootName string) *State {
	return &State{
		current: rootID,
		trail:   []Crumb{{ID: rootID, Name: rootName}},
	}
}

// CurrentFolderID returns the id of the folder the user is looking at.
func (s *State) CurrentFolderID() string {
	return s.current
}

// AtRoot reports whether there is no back history.
func (s *State) AtRoot() bool {
	return len(s.backStack) == 0
}

// Breadcrumbs returns a copy of the breadcrumb trail, root first.
func (s *State) Breadcrumbs() []Crumb {
	trail := make([]Crumb, len(s.trail))
	copy(trail, s.trail)
	return trail
}

// BackStack returns a copy of the back-stack, most recent last.
func (s *State) BackStack() []string {
	stack := make([]string, len(s.backStack))
	copy(stack, s.backStack)
	return stack
}

// SetRootName renames the root crumb. Used once the proxy resolves the
// root folder's display name after authentication.
func (s *State) SetRootName(name string) {
	if name != "" {
		s.trail[0].Name = name
	}
}

// EnterFolder descends into the folder with the given id and display name.
func (s *State) EnterFolder(id, name string) {
	s.backStack = append(s.backStack, s.current)
	s.current = id
	s.trail = append(s.trail, Crumb{ID: id, Name: name})
}

// GoBack returns to the previously visited folder. Reports whether the
// state changed; at the root it is a no-op.
func (s *State) GoBack() bool {
	if len(s.backStack) == 0 {
		return false
	}

	s.current = s.backStack[len(s.backStack)-1]
	s.backStack = s.backStack[:len(s.backStack)-1]

	if len(s.trail) > 1 {
		s.trail = s.trail[:len(s.trail)-1]
	}

	return true
}

// JumpToBreadcrumb moves directly to a folder already present in the
// trail, truncating the trail past it. Jumping to the current folder or
// to an id not in the trail is ignored: the latter can only come from a
// stale UI reference. Reports whether the state changed.
func (s *State) JumpToBreadcrumb(id string) bool {
	if id == s.current {
		return false
	}

	idx := -1
	for i, crumb := range s.trail {
		if crumb.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	s.trail = s.trail[:idx+1]
	s.backStack = append(s.backStack, s.current)
	s.current = id

	return true
}
