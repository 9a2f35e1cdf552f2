package bot

// How each failure is handled. Only the first two reach a caller; the rest
// degrade in place so the turn (or reminder run) still finishes.
//
//	failure                          handled by                 outcome
//	provider error / timeout         agent.Run -> ErrGeneration  apology sent, record is_sent=false
//	empty generation                 HandleTurn -> ErrEmptyReply apology sent, record is_sent=false
//	tool error or panic              agent.Registry.Execute      model sees "Error executing database query"
//	unknown tool name                agent.Registry.Execute      model sees "Error executing database query"
//	tool returns nothing             agent.Registry.Execute      model sees "No result"
//	round budget exhausted           agent.Run                   last text seen is the reply
//	history read fails               agent.History.FetchRecent   logged, turn runs without history
//	history write fails              agent.History.Append        logged, reply already sent
//	reply send fails                 HandleTurn                  logged, record is_sent=false
//	apology send fails               HandleTurn                  logged
//	reminder generation/send fails   scheduler.Composer.Fire     logged, rest of the run aborted
