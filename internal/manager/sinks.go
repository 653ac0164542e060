package manager

import "github.com/sandeepkv93/taskstracker/internal/model"

// Dispatcher runs fn on the coordinating goroutine. Every mutation of a
// manager's task list happens inside a dispatched function or a direct call
// from that goroutine.
type Dispatcher interface {
	Dispatch(fn func())
}

// Refresher redraws one task row, or every row when task is nil.
type Refresher interface {
	Refresh(task *model.Task)
}

type MessageColor string

const (
	ColorPartial  MessageColor = "#940B00"
	ColorComplete MessageColor = "#007517"
)

type Messenger interface {
	SendMessage(text string, color MessageColor)
}

// Selection reports the category currently on screen.
type Selection interface {
	SelectedCategory() model.Category
}

type nopRefresher struct{}

func (nopRefresher) Refresh(*model.Task) {}

type nopMessenger struct{}

func (nopMessenger) SendMessage(string, MessageColor) {}

type fixedSelection model.Category

func (s fixedSelection) SelectedCategory() model.Category { return model.Category(s) }
