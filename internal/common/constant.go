// Package common contains shared constants and sentinel errors used across
// SafeCircle components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the session
// token on requests.
const AccessTokenHeaderName = "access_token"

// DeviceIDHeaderName is the gRPC metadata key carrying the device identifier
// the session token is bound to.
const DeviceIDHeaderName = "device_id"
