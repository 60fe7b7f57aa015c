// Package capture
// Author: momentics <momentics@gmail.com>
//
// Signal-safe diagnostic capture invoked on fault delivery.
package capture
