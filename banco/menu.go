package main

// pizzaOrder keeps the menu in display order; aggregation output follows it.
var pizzaOrder = []string{
	"focaccia",
	"margherita",
	"napoletana",
	"capricciosa",
	"rucola",
	"vegetariana",
	"parmigiana",
	"regina",
	"salmone",
	"calabrese",
	"inferno",
	"quattroFormaggi",
	"laStoria",
	"campana",
	"genovese",
	"alTonno",
}

var pizzaMenu = map[string]string{
	"focaccia":        "Focaccia",
	"margherita":      "Margherita",
	"napoletana":      "Napoletana",
	"capricciosa":     "Capricciosa",
	"rucola":          "Rucola",
	"vegetariana":     "Vegetariana",
	"parmigiana":      "Parmigiana",
	"regina":          "Regina",
	"salmone":         "Salmone",
	"calabrese":       "Calabrese",
	"inferno":         "Inferno",
	"quattroFormaggi": "4 Formaggi",
	"laStoria":        "La Storia",
	"campana":         "Campana",
	"genovese":        "Genovese",
	"alTonno":         "Al Tonno",
}

var supplementMenu = map[string]string{
	"bufala":     "Bufala",
	"bresaola":   "Bresaola",
	"saumon":     "Saumon",
	"chevre":     "Chèvre",
	"gorgonzola": "Gorgonzola",
	"oeuf":       "Œuf",
}

// supplementAlias maps retired composite supplement keys still sent by old
// clients onto their canonical constituents.
var supplementAlias = map[string][]string{
	"bufalanBresaola": {"bufala", "bresaola"},
}

func isValidPizza(key string) bool {
	_, ok := pizzaMenu[key]
	return ok
}

func isValidSupplement(key string) bool {
	_, ok := supplementMenu[key]
	return ok
}
