package client

// The upstream API is only semi-documented and not entirely consistent about
// scalar types (numbers sometimes arrive as strings, booleans as 0/1), so
// the loose fields below stay interface{} and are coerced by the transformer.

type RawPage struct {
	Data []RawProduct `json:"data"`
	Meta PageMeta     `json:"meta"`
}

type PageMeta struct {
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	Total       int `json:"total"`
}

type RawProductEnvelope struct {
	Data RawProduct `json:"data"`
}

type RawProduct struct {
	ID          interface{}    `json:"id"`
	Name        string         `json:"name"`
	Underline   string         `json:"underline"`
	Description string         `json:"description"`
	Declaration string         `json:"declaration"`
	Department  *RawDepartment `json:"department"`
	Images      []RawImage     `json:"images"`
	Prices      []RawPrice     `json:"prices"`
	Labels      []RawLabel     `json:"labels"`

	TemperatureZone        *string     `json:"temperature_zone"`
	IsAvailableInAllStores interface{} `json:"is_available_in_all_stores"`
}

type RawDepartment struct {
	ID                     int    `json:"id"`
	Name                   string `json:"name"`
	ProductsLastModifiedAt string `json:"products_last_modified_at"`
}

type RawImage struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

type RawPrice struct {
	Price        interface{} `json:"price"`
	IsAdvertised interface{} `json:"is_advertised"`
	IsCampaign   interface{} `json:"is_campaign"`
	StartingAt   string      `json:"starting_at"`
	EndingAt     string      `json:"ending_at"`
	CompareUnit  string      `json:"compare_unit"`
}

type RawLabel struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type DepartmentsResponse struct {
	Data []RawDepartment `json:"data"`
}

type ChangesResponse struct {
	Data []RawProduct `json:"data"`
}
