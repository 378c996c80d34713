package portal

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
)

const tokenPrefix = "clipper"

// generateToken returns a handle_token valid as a D-Bus object path element.
func generateToken() string {
	str := strings.Builder{}
	str.WriteString(tokenPrefix)
	a, _ := rand.Int(rand.Reader, big.NewInt(1<<32))
	str.WriteString(strconv.FormatUint(a.Uint64(), 16))
	return str.String()
}

// requestPath predicts the Request object path the portal will create for a
// call made by sender with the given handle token.
func requestPath(sender, token string) dbus.ObjectPath {
	s := strings.TrimPrefix(sender, ":")
	s = strings.ReplaceAll(s, ".", "_")
	return dbus.ObjectPath(ObjectPath + "/request/" + s + "/" + token)
}
