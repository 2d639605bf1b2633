// Package vcs3 models the EMS VCS3 voltage-controlled filter as a nonlinear
// five-state discrete-time system.
//
// The model follows the polynomial/tanh state-space formulation of the VCS3
// diode ladder: five saturating integrator states advanced per sample by an
// implicit trapezoidal rule, plus a separately integrated output capacitor
// voltage that feeds back into two of the states. Each sample requires the
// solution of a nonlinear equation, handled by one of two strategies:
//
//   - SolverAccurate: damped Newton-Raphson with backtracking line search
//     and convergence check, for offline rendering.
//   - SolverRealtime: linear predictor plus a fixed two-iteration Newton
//     correction, for bounded per-sample cost.
//
// The filter is stateful, deterministic, and allocation-free per sample.
// Supported workflows:
//
//   - Per-sample and block processing at a fixed cutoff
//   - Stream processing with a per-sample coefficient schedule
//     (see the ramp package for cutoff sweeps)
//   - Optional oversampled anti-alias processing around the nonlinear core
//   - Explicit state save/restore via Snapshot
//   - Queryable convergence diagnostics
//
// Numerical imperfection within a sample (a non-converged or degraded Newton
// step) is absorbed and counted, never raised as an error. Non-finite input
// is the one fatal condition, since the solve cannot recover from poisoned
// state.
package vcs3
