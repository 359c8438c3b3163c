package lib

import "github.com/emersion/go-message/mail"

// AddressSet tracks addresses that are already spoken for when building
// recipient lists, so reply-all never duplicates and never self-addresses.
type AddressSet map[string]struct{}

func NewAddressSet() AddressSet {
	return make(AddressSet)
}

func (s AddressSet) Add(a *mail.Address) {
	if a != nil {
		s[a.Address] = struct{}{}
	}
}

func (s AddressSet) AddList(al []*mail.Address) {
	for _, a := range al {
		s.Add(a)
	}
}

func (s AddressSet) Contains(a *mail.Address) bool {
	if a == nil {
		return false
	}
	_, ok := s[a.Address]
	return ok
}

// Filter returns the addresses from al not yet in the set, adding each
// survivor so that later calls keep deduplicating against it. Order is
// preserved.
func (s AddressSet) Filter(al []*mail.Address) []*mail.Address {
	var out []*mail.Address
	for _, a := range al {
		if s.Contains(a) {
			continue
		}
		s.Add(a)
		out = append(out, a)
	}
	return out
}
