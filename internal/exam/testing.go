package exam

// OverwriteSession is a test helper that replaces a stored session when using
// the in-memory repository, e.g. to rewind its start time.
func OverwriteSession(r Repository, session Session) {
	if mem, ok := r.(*memoryRepository); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.sessions[session.ID] = session
	}
}
