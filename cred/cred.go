// Package cred implements credential objects: read-only accessors over
// a task's security context. Credentials are reference-counted via
// kobj and immutable after construction, so accessors need no
// synchronization.
package cred

import (
	"fmt"

	"github.com/hostkit/reskit/kobj"
)

// Kuid is a kernel user id.
type Kuid uint32

// Uint32 returns the raw uid value.
func (k Kuid) Uint32() uint32 { return uint32(k) }

func (k Kuid) String() string { return fmt.Sprintf("uid:%d", uint32(k)) }

// Credential is a security context. All fields are set at construction
// and never change, which is what makes lock-free concurrent reads
// through borrowed views sound.
type Credential struct {
	kobj.Count

	euid  Kuid
	secid uint32
}

// New creates a credential with the given effective uid and security
// module id. The returned reference carries the initial count unit.
func New(euid Kuid, secid uint32) *Credential {
	c := &Credential{euid: euid, secid: secid}
	c.Init()
	return c
}

// Euid returns the effective uid of this credential.
func (c *Credential) Euid() Kuid {
	return c.euid
}

// Secid returns the id of this security context.
func (c *Credential) Secid() uint32 {
	return c.secid
}

func (c *Credential) String() string {
	return fmt.Sprintf("cred{%v secid:%d}", c.euid, c.secid)
}
