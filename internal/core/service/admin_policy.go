package service

// StaticAdminPolicy grants admin rights to a fixed set of user ids,
// typically loaded from ADMIN_IDS.
type StaticAdminPolicy struct {
	ids map[int64]struct{}
}

func NewStaticAdminPolicy(ids ...int64) *StaticAdminPolicy {
	p := &StaticAdminPolicy{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		p.ids[id] = struct{}{}
	}
	return p
}

func (p *StaticAdminPolicy) IsAdmin(userID int64) bool {
	_, ok := p.ids[userID]
	return ok
}
