package config

// C is the interface services use to access configuration.
type C interface {
	GetRoot() *Root
	IsDebugMode() bool
}

type service struct {
	root *Root
}

func (s *service) GetRoot() *Root {
	return s.root
}

func (s *service) IsDebugMode() bool {
	if s.root == nil {
		return false
	}

	return s.root.Debug
}

// FromRoot wraps an already constructed root in the config interface.
func FromRoot(root *Root) C {
	return &service{root: root}
}

var _ C = (*service)(nil)
