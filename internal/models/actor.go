package models

// Actor is the caller of a service operation: the resolved teacher, or anonymous.
type Actor struct {
	Teacher   *Teacher
	SessionID string
}

// Anonymous returns an actor with no bound teacher.
func Anonymous() Actor {
	return Actor{}
}

// ActorFor binds a teacher to an actor.
func ActorFor(t *Teacher, sessionID string) Actor {
	return Actor{Teacher: t, SessionID: sessionID}
}

// Authenticated reports whether a teacher is bound.
func (a Actor) Authenticated() bool {
	return a.Teacher != nil
}

// IsEO reports whether the bound teacher is an examination officer.
func (a Actor) IsEO() bool {
	return a.Teacher != nil && a.Teacher.IsEO
}
