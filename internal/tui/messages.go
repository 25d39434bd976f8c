package tui

import (
	"github.com/Veraticus/leech-actions/internal/model"
)

// savedMsg reports the outcome of persisting the edited rule list.
type savedMsg struct {
	err    error
	config model.Configuration
}
