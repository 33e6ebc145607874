//go:build race

package iam

import "golang.org/x/crypto/bcrypt"

func passwordHashCost() int {
	// Race builds are slow enough without the production cost.
	return bcrypt.DefaultCost
}
