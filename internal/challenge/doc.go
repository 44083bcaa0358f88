// Package challenge generates and verifies the two captcha kinds served by
// the captcha server.
//
// # Math
//
// Two random operands are rendered as "<a> + <b>". The client answers with
// the decimal sum; anything that is not a run of digits fails.
//
// # Even/odd
//
// A row of small numbers is rendered as a comma-terminated list, e.g.
// "2,3,4,". The client answers with one ASCII digit per number: '0' for an
// even number, '1' for an odd one. Positions are checked in order and the
// first mismatch fails the whole challenge.
package challenge
