// Package metadata defines the request headers the game service reads and
// the interceptor that guarantees each call carries a request id.
//
// # Header Constants
//
//   - RequestIDHeader: correlates access logs and dispatch logs for one call.
//   - PlayerIDHeader: the caller's seat, used only as a logging hint.
//   - LocaleHeader: Accept-Language style list used to localize rejections.
package metadata
