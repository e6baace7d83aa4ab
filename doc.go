// Package portal implements the admin side of an educational platform:
// Discord OAuth sign-in, profile provisioning, role/status access gating,
// user management, and course-progress reporting.
//
// Identity and provisioning:
//   - Users carry a Role (applicant, student, staff, admin) and an
//     AccountStatus (pending, accepted, denied), both persisted via Bun.
//     Accounts are created on first sign-in through a ProfileProvisioner;
//     role and status only change afterwards through ChangeRoleHandler.
//   - Claims is the typed view of what the OAuth provider reports. Derived
//     values (username, avatar, discord ID) resolve through explicit
//     fallback chains so missing provider data degrades predictably.
//
// Access gating:
//   - Gate holds the pure routing decision: given an identity and a
//     GateRequirement it yields allow, a sign-in redirect, a landing-page
//     redirect, or a loading state. GateMiddleware binds that decision to
//     HTTP routes and stashes the resolved User in request locals.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter describing
//     registration, login, role change, and sign-out events. Sinks run
//     best-effort; ActivityDispatcher fronts a sink with a buffered queue
//     so delivery never blocks the request path.
package portal
