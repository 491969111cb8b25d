// Package rulemod is a declarative moderation rule engine: admin-authored
// rules (typed conditions over a fixed field catalog, plus enforcement
// actions) are evaluated against content and user events, the
// highest-priority match decides, and the winning rule's actions are executed
// with retries, daily quotas, and an audit trail.
//
// The package is designed to work as an internal library (eg for testing), or
// to be run as a standalone service with parallel horizontal scaling of
// stateless evaluation over shared counter, set, flag, and cache stores (see
// cmd/warden).
package rulemod
