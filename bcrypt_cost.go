//go:build !race

package iam

func passwordHashCost() int {
	return 12
}
