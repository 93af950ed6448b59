// Package jwt signs and verifies the access tokens minted by the local
// identity provider, and peeks at the expiry of tokens issued elsewhere.
package jwt
