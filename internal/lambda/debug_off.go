//go:build !liftdebug

package lambda

const debugChecks = false
