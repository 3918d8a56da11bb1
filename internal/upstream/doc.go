// Package upstream queries the provider's usage-limit endpoint on behalf of
// balance requests. Failures are reported through typed sentinel errors so
// callers can distinguish upstream outages from local faults.
package upstream
