// Package core contains the OAuth 1.0 credential manager, the request signer
// and the contracts shared by transport, storage and the API facade. Lower
// level adapters depend on this package; core must not depend on transport,
// storage or facade packages.
package core
