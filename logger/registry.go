package logger

import "sync"

var components sync.Map // name -> *Logger

// Get returns the component logger for name, derived from Default and
// cached until the next SetDefault.
func Get(name string) *Logger {
	if l, ok := components.Load(name); ok {
		return l.(*Logger)
	}
	l, _ := components.LoadOrStore(name, Default().WithComponent(name))
	return l.(*Logger)
}

func resetComponents() {
	components.Clear()
}
