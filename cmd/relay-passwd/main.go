// Command relay-passwd prints a bcrypt hash for an accounts.users entry.
//
//	relay-passwd -cost 12 < password.txt
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Tyrowin/gochat-rooms/internal/auth"
)

func main() {
	cost := flag.Int("cost", auth.DefaultBcryptCost, "bcrypt cost")
	flag.Parse()

	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && password == "" {
		logrus.WithError(err).Fatal("Failed to read password from stdin")
	}
	password = strings.TrimRight(password, "\r\n")
	if password == "" {
		logrus.Fatal("Password is empty")
	}

	hash, err := auth.NewPasswordHasherWithCost(*cost).Hash(password)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to hash password")
	}
	fmt.Println(hash)
}
