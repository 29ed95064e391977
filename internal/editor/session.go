package editor

import "github.com/kingrea/creatorflow/internal/project"

// Token identifies one opening of the editor. Async work captures the token
// at dispatch and checks it with Owns before touching the working copy.
type Token uint64

// Session tracks the single active working copy. It is owned by the UI loop
// and is not safe for concurrent use.
type Session struct {
	active Token
	last   Token
	copy   *WorkingCopy
}

// Open starts editing p, invalidating any earlier token.
func (s *Session) Open(p project.VideoProject) (*WorkingCopy, Token) {
	s.last++
	s.active = s.last
	s.copy = Open(p)
	return s.copy, s.active
}

// Close ends the current editing session.
func (s *Session) Close() {
	s.active = 0
	s.copy = nil
}

// Active returns the open working copy, if any.
func (s *Session) Active() (*WorkingCopy, Token, bool) {
	if s.copy == nil {
		return nil, 0, false
	}
	return s.copy, s.active, true
}

// Owns reports whether token still refers to the open editor.
func (s *Session) Owns(token Token) bool {
	return token != 0 && s.copy != nil && token == s.active
}
