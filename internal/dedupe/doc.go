// Package dedupe drops updates the gateway has already handled.
package dedupe
