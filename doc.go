// Package iam provides account registration, login and session management
// plus the email links that drive magic link login and address verification.
//
// Login modes:
//   - A deployment runs either LoginModePassword (bcrypt hashed passwords) or
//     LoginModeMagicLink (short lived signed links). Calling the other mode's
//     entry point returns ErrLoginModeDisabled.
//   - Login links work once. Verification links carry a different purpose
//     and never log anyone in.
//
// Sessions:
//   - Every login creates a Session row and signs a bearer embedding its id.
//     VerifyToken checks only signature and expiry unless StrictSessions is
//     set, in which case the session must still exist. A SessionCache can
//     front the existence check.
//
// User lifecycle:
//   - Users are Active or Inactive. UserStateMachine owns the transition graph
//     and hooks. CloseAccount deactivates the user and deletes its sessions in
//     one transaction.
//
// Errors:
//   - Persistence and transport failures are logged and surface as
//     ErrInternal. Credential misses surface as ErrNotFound without saying
//     whether the email or the password was wrong.
//
// Activity sinks:
//   - ActivitySink receives registration, login, logout and lifecycle events.
//     Sinks run best-effort (errors are logged).
package iam
