// README: Completion allowance errors and defaults.
package aiusage

import "errors"

// ErrQuotaExceeded is returned when an owner has used this month's allowance.
var ErrQuotaExceeded = errors.New("monthly assistant allowance exhausted")

// DefaultMonthlyAllowance is the number of completions granted per owner per month.
const DefaultMonthlyAllowance = 100

// periodLayout keys allowances by calendar month.
const periodLayout = "2006-01"
