// Package region
// Author: momentics <momentics@gmail.com>
//
// Per-thread diagnostic regions: allocation, sigaltstack-style
// registration and ordered teardown. A region is owned exclusively by
// the installing thread and stays pinned at its address for as long as
// the fault handler may fire there.
package region
