package tray

import "testing"

type fakeController struct {
	active bool
	muted  bool
}

func (f *fakeController) IsActive() bool { return f.active }
func (f *fakeController) Muted() bool    { return f.muted }
func (f *fakeController) ToggleMute() bool {
	f.muted = !f.muted
	return f.muted
}

func TestTitles(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"active", toggleTitle(true), "● Recognizing (click to stop)"},
		{"stopped", toggleTitle(false), "○ Stopped (click to start)"},
		{"muted", muteTitle(true), "Unmute"},
		{"unmuted", muteTitle(false), "Mute"},
		{"no word", lastWordTitle(""), "Last: none"},
		{"word", lastWordTitle("HELLO"), "Last: HELLO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestTray_HandlersBeforeReady(t *testing.T) {
	ctrl := &fakeController{}
	tr := New(ctrl)

	var requested []bool
	tr.OnToggle(func(active bool) {
		requested = append(requested, active)
		ctrl.active = active
	})
	opened := 0
	tr.OnOpen(func() { opened++ })

	tr.handleToggle()
	tr.handleToggle()
	if len(requested) != 2 || requested[0] != true || requested[1] != false {
		t.Errorf("toggle requests = %v, want [true false]", requested)
	}

	tr.handleMute()
	if !ctrl.muted {
		t.Error("handleMute() should toggle the controller mute flag")
	}

	tr.handleOpen()
	if opened != 1 {
		t.Errorf("open callback called %d times, want 1", opened)
	}

	tr.SetLastWord("YES")
	if tr.LastWord() != "YES" {
		t.Errorf("LastWord() = %q, want YES", tr.LastWord())
	}
}
