// Package otp mints the numeric codes handed to students and lecturers.
// Codes are attendance tokens passed around a classroom by voice or
// projector, not secrets: math/rand is deliberate.
package otp

import "math/rand"

// DefaultLength is the number of digits in a generated code.
const DefaultLength = 6

// Generate returns a numeric code of n digits. Leading zeros are allowed,
// so the code is returned as a string. n below 4 is clamped to 4 to keep
// collisions across a class roster unlikely.
func Generate(n int) string {
	if n < 4 {
		n = 4
	}
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte('0' + rand.Intn(10))
	}
	return string(buf)
}
