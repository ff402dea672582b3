// Package dynamo provides the core data types shared by every stage of the
// identification pipeline.
//
// The package defines:
//
//   - [System]: immutable descriptor of ordered observation and control names
//   - [Trajectory]: a fixed-length sequence of (observation, control) pairs
//   - [State] and [Control]: raw vectors
//   - [Plant]: interface for continuous-time reference dynamics
//   - [ParallelFor]: chunked parallel loop used by the lifting stage
//
// # Example
//
//	sys, _ := dynamo.NewSystem([]string{"x1", "x2"}, []string{"u"})
//	traj := dynamo.NewTrajectory(sys, 10)
//	traj.Obs[0] = dynamo.State{1, 0}
//
// # Thread Safety
//
// A System is never mutated after construction and may be shared freely.
// Trajectories are owned by the caller; the identification code only reads
// them.
package dynamo
