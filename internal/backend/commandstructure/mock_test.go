package commandstructure

type stubCommand struct {
	name string
	run  func([]byte) ([]byte, error)
}

func (s *stubCommand) Name() string {
	return s.name
}

func (s *stubCommand) Execute(imageData []byte) ([]byte, error) {
	if s.run == nil {
		return imageData, nil
	}
	return s.run(imageData)
}

func passThrough(name string) *stubCommand {
	return &stubCommand{name: name}
}

func failing(name string, err error) *stubCommand {
	return &stubCommand{
		name: name,
		run: func([]byte) ([]byte, error) {
			return nil, err
		},
	}
}

func appending(name, suffix string) *stubCommand {
	return &stubCommand{
		name: name,
		run: func(data []byte) ([]byte, error) {
			return append(append([]byte{}, data...), suffix...), nil
		},
	}
}
