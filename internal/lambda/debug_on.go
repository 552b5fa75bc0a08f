//go:build liftdebug

package lambda

const debugChecks = true
