package roster

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/emersion/go-message/mail"
	"github.com/pkg/errors"
)

// A Person is one directory entry. The generator only ever addresses mail
// between roster members.
type Person struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Title      string `json:"title"`
	Department string `json:"department"`
}

// Address returns the person as an RFC 5322 address.
func (p *Person) Address() *mail.Address {
	return &mail.Address{Name: p.Name, Address: p.Email}
}

// Provider is the directory capability consumed by the engine. Lookup with
// an empty department returns the whole roster.
type Provider interface {
	Lookup(department string) []*Person
	Domain() string
}

// Roster is the built-in Provider: a fixed company directory.
type Roster struct {
	Company    string    `json:"company_name"`
	MailDomain string    `json:"domain"`
	Employees  []*Person `json:"employees"`
}

var departments = []string{
	"Engineering", "Marketing", "Sales", "Human Resources",
	"Finance", "Legal", "Product",
}

var titles = map[string][]string{
	"Engineering":     {"Software Engineer", "Senior Software Engineer", "Engineering Manager", "CTO", "DevOps Engineer"},
	"Marketing":       {"Marketing Specialist", "Marketing Manager", "CMO", "Content Creator"},
	"Sales":           {"Sales Representative", "Account Manager", "VP of Sales"},
	"Human Resources": {"HR Generalist", "HR Manager", "Recruiter"},
	"Finance":         {"Accountant", "Finance Director", "CFO"},
	"Legal":           {"General Counsel", "Legal Assistant"},
	"Product":         {"Product Manager", "Director of Product", "UX Designer"},
}

var firstNames = []string{
	"Alice", "Bob", "Carol", "Dave", "Erin", "Frank", "Grace", "Henry",
	"Irene", "Jack", "Karen", "Liam", "Maria", "Nathan", "Olivia", "Peter",
	"Quinn", "Rachel", "Sam", "Tara", "Victor", "Wendy", "Xavier", "Yvonne",
	"Zach", "Amir", "Bianca", "Chen", "Daniela", "Elena", "Felix", "Gita",
	"Hugo", "Ines", "Jonas", "Kavya", "Lucas", "Mei", "Noor", "Oscar",
}

var lastNames = []string{
	"Anderson", "Baker", "Carter", "Diaz", "Evans", "Foster", "Garcia",
	"Hughes", "Ivanov", "Johnson", "Kim", "Lopez", "Miller", "Nguyen",
	"Olsen", "Patel", "Quintero", "Reyes", "Schmidt", "Tanaka", "Ueda",
	"Vasquez", "Walker", "Xu", "Young", "Zhang", "Brennan", "Costa",
	"Dubois", "Eriksen", "Fischer", "Grant", "Haddad", "Iqbal", "Jensen",
	"Kowalski", "Lindgren", "Moreau", "Novak", "Okafor",
}

var companyWords = [][2]string{
	{"Meridian", "Systems"}, {"Cascade", "Analytics"}, {"Harbor", "Logistics"},
	{"Summit", "Partners"}, {"Atlas", "Dynamics"}, {"Beacon", "Industries"},
	{"Crescent", "Holdings"}, {"Vector", "Labs"}, {"Pioneer", "Group"},
	{"Sterling", "Consulting"},
}

// Generate builds a deterministic roster of the given size from rng. When
// company is empty one is drawn from the built-in table, like the original
// data set.
func Generate(rng *rand.Rand, size int, company string) *Roster {
	if company == "" {
		w := companyWords[rng.Intn(len(companyWords))]
		company = w[0] + " " + w[1]
	}
	domain := strings.ToLower(strings.NewReplacer(" ", "", ",", "").Replace(company)) + ".com"

	r := &Roster{Company: company, MailDomain: domain}
	seen := make(map[string]int)
	for len(r.Employees) < size {
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]
		local := strings.ToLower(first) + "." + strings.ToLower(last)
		// full-name collisions get a numeric suffix instead of being
		// redrawn so that generation always terminates
		if n := seen[local]; n > 0 {
			local = fmt.Sprintf("%s%d", local, n+1)
		}
		seen[strings.ToLower(first)+"."+strings.ToLower(last)]++
		dept := departments[rng.Intn(len(departments))]
		r.Employees = append(r.Employees, &Person{
			Name:       first + " " + last,
			Email:      local + "@" + domain,
			Department: dept,
			Title:      titles[dept][rng.Intn(len(titles[dept]))],
		})
	}
	return r
}

// Lookup implements Provider.
func (r *Roster) Lookup(department string) []*Person {
	if department == "" {
		out := make([]*Person, len(r.Employees))
		copy(out, r.Employees)
		return out
	}
	var out []*Person
	for _, p := range r.Employees {
		if strings.EqualFold(p.Department, department) {
			out = append(out, p)
		}
	}
	return out
}

// Domain implements Provider.
func (r *Roster) Domain() string {
	return r.MailDomain
}

// Load reads a previously saved roster file.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Roster
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, path)
	}
	if len(r.Employees) == 0 {
		return nil, fmt.Errorf("%s: empty roster", path)
	}
	if r.MailDomain == "" {
		return nil, fmt.Errorf("%s: missing domain", path)
	}
	return &r, nil
}

// Save writes the roster so later runs can reuse the same directory.
func (r *Roster) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
