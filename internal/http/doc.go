// Package http provides HTTP handlers and middleware for the attendance API.
//
// The router exposes the following endpoints:
//   - POST /api/attendance, PUT /api/attendance/{id}, DELETE /api/attendance/{id}:
//     form-encoded attendance writes. Successful writes answer 204 No Content with
//     an `HX-Trigger` header carrying the JSON refresh hints (closeModal plus the
//     affected month and week) for htmx clients.
//   - GET /api/attendance/user/{id}?date=: all attendance rows for one user,
//     optionally narrowed to a single date.
//   - GET /api/calendar?month=, GET /api/calendar/week?week=, GET /api/day/{date},
//     GET /api/users/{id}/month?month=: calendar views built by the application
//     layer. Malformed periods answer 400 for API clients; browser navigations
//     (Accept: text/html) are redirected to the current period instead.
//   - GET /api/analysis?month=|year=: per-user and per-group aggregation for one
//     month or one fiscal year (April through March).
//   - GET /api/csv/download?month=&encoding=: streaming CSV export in UTF-8 (with
//     BOM) or Shift-JIS. GET /api/csv/months lists the selectable export months.
//   - CRUD under /api/groups, /api/employee-types, /api/locations, /api/users and
//     /api/holidays exchanging the DTO payloads defined next to each handler, plus
//     POST /api/holidays/fetch?year= to pull one year of public holidays.
//   - The /auth family: login pages, the OIDC redirect/callback pair, local-admin
//     login, logout, and the runtime OIDC toggle. See auth_handler.go.
//
// The SessionGate middleware guards every non-exempt path once AUTH_ENABLED is
// set; RequestLogger attaches a request-scoped logger that handlers pick up from
// the context.
package http
