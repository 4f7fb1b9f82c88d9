package config

import (
	"strings"
)

// Mode selects the coaching persona.
type Mode string

// Modes.
const (
	ModePresentation Mode = "presentation"
	ModeInterview    Mode = "interview"
	ModePitch        Mode = "pitch"
	ModeFreeform     Mode = "freeform"
)

// Valid reports whether m is a known mode. The empty mode is valid and means the default.
func (m Mode) Valid() bool {
	_, ok := modePrompts[m]
	return ok || m == ""
}

var modePrompts = map[Mode]string{
	ModePresentation: "You are a friendly, experienced presentation coach. The user is rehearsing a talk " +
		"on camera. Listen without interrupting. Speak only when the user pauses for a while or asks you " +
		"a question, and keep spoken feedback to one or two sentences.",
	ModeInterview: "You are an interviewer running a realistic practice interview. Ask one question at a " +
		"time, listen to the full answer, then follow up or move on. Stay in character.",
	ModePitch: "You are a skeptical but fair investor hearing a startup pitch. Let the user finish, then " +
		"ask pointed questions about the market, the numbers and the team.",
	ModeFreeform: "You are a supportive speaking coach. Have a natural conversation and help the user " +
		"practise speaking clearly and confidently.",
}

const insightGuidance = "You can see the user through periodic camera frames. When you notice something " +
	"worth flagging (pace, filler words, posture, eye contact, clarity) call the show_insight tool with a " +
	"title of two to four words and one sentence of content. Do not read insights aloud and do not " +
	"mention that you are calling a tool."

const quietGuidance = "Do not call any tools. Keep all feedback spoken."

const teleprompterGuidance = "The user is reading the script below from a teleprompter. Stay silent " +
	"while they read. Only speak if they stop for a long time or ask you directly."

// ComposeInstruction builds the system instruction from the mode preset (or
// an explicit systemInstruction), the topic, the script and tool guidance.
func ComposeInstruction(s *SessionSpec) string {
	var parts []string

	base := strings.TrimSpace(s.SystemInstruction)
	if base == "" {
		mode := s.Mode
		if mode == "" {
			mode = ModePresentation
		}
		base = modePrompts[mode]
	}
	parts = append(parts, base)

	if topic := strings.TrimSpace(s.Topic); topic != "" {
		parts = append(parts, "Topic: "+topic)
	}

	if s.DistractionFree {
		parts = append(parts, quietGuidance)
	} else {
		parts = append(parts, insightGuidance)
	}

	if script := strings.TrimSpace(s.Script); script != "" {
		if s.Teleprompter {
			parts = append(parts, teleprompterGuidance)
		}
		parts = append(parts, "Script:\n"+script)
	}

	return strings.Join(parts, "\n\n")
}
