package users

import "time"

// DemoUsers returns a fixed set of sample records. Slots are placed in the
// days after now so the records pass validation when edited.
func DemoUsers(now time.Time) []User {
	day := now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	slots := func(offsets ...int) []time.Time {
		out := make([]time.Time, 0, len(offsets))
		for _, h := range offsets {
			out = append(out, day.Add(time.Duration(h)*time.Hour))
		}
		return out
	}
	type seed struct {
		id, name, username, email, phone, website string
		role                                      Role
		active                                    bool
		skills                                    []string
		slots                                     []time.Time
		street, city, zip, company                string
	}
	seeds := []seed{
		{"1", "Leanne Graham", "bret", "leanne@april.biz", "1-770-736-8031", "https://hildegard.org", RoleAdmin, true,
			[]string{"React", "Go"}, slots(9, 33), "Kulas Light 556", "Gwenborough", "92998", "Romaguera-Crona"},
		{"2", "Ervin Howell", "antonette", "ervin@melissa.tv", "010-692-6593", "https://anastasia.net", RoleEditor, true,
			[]string{"Vue", "Python"}, slots(10), "Victor Plains 879", "Wisokyburgh", "90566", "Deckow-Crist"},
		{"3", "Clementine Bauch", "samantha", "clementine@yesenia.net", "1-463-123-4447", "https://ramiro.info", RoleViewer, false,
			[]string{"SQL"}, slots(14, 62), "Douglas Extension 847", "McKenziehaven", "59590", "Romaguera-Jacobson"},
		{"4", "Patricia Lebsack", "karianne", "patricia@kory.org", "493-170-9623", "https://kale.biz", RoleEditor, true,
			[]string{"Angular", "Java"}, slots(11), "Hoeger Mall 692", "South Elvis", "53919", "Robel-Corkery"},
		{"5", "Chelsey Dietrich", "kamren", "chelsey@annie.ca", "(254)954-1289", "https://demarco.info", RoleViewer, true,
			[]string{"Figma"}, slots(15, 39), "Skiles Walks 351", "Roscoeview", "33263", "Keebler LLC"},
		{"6", "Dennis Schulist", "leopoldo_c", "dennis@dana.io", "1-477-935-8478", "https://ola.org", RoleAdmin, false,
			[]string{"Rust", "Go"}, slots(16), "Norberto Crossing", "South Christy", "23505", "Considine-Lockman"},
		{"7", "Kurtis Weissnat", "elwyn_s", "kurtis@billy.biz", "210-067-6132", "https://elvis.io", RoleEditor, true,
			[]string{"Node", "Docker"}, slots(9), "Rex Trail 280", "Howemouth", "58804", "Johns Group"},
		{"8", "Nicholas Runolfsdottir", "maxime_n", "nicholas@rosamond.me", "586-493-6943", "https://jacynthe.com", RoleViewer, true,
			[]string{"Kotlin"}, slots(13, 37), "Ellsworth Summit 729", "Aliyaview", "45169", "Abernathy Group"},
		{"9", "Glenna Reichert", "delphine", "glenna@dana.io", "(775)976-6794", "https://conrad.com", RoleAdmin, true,
			[]string{"Go", "K8s"}, slots(12), "Dayna Park 449", "Bartholomebury", "76495", "Yost and Sons"},
		{"10", "Clementina DuBuque", "moriah_s", "rey@karina.biz", "024-648-3804", "https://ambrose.net", RoleViewer, false,
			[]string{"Excel"}, slots(17), "Kattie Turnpike 198", "Lebsackbury", "31428", "Hoeger LLC"},
	}
	out := make([]User, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, User{
			ID:             s.id,
			Name:           s.name,
			Username:       s.username,
			Email:          s.email,
			Phone:          s.phone,
			Website:        s.website,
			Role:           s.role,
			IsActive:       s.active,
			Skills:         s.skills,
			AvailableSlots: s.slots,
			Address:        &Address{Street: s.street, City: s.city, Zipcode: s.zip},
			Company:        &Company{Name: s.company},
		})
	}
	return out
}
