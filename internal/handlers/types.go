package handlers

import "github.com/serroba/golinks/internal/links"

// LinkBody is the JSON form of a link.
type LinkBody struct {
	Name       string `doc:"Short name"       example:"docs"                     json:"name"`
	URL        string `doc:"Destination URL"  example:"https://docs.example.com" json:"url"`
	VisitCount int64  `doc:"Redirects served" example:"42"                       json:"visitCount"`
}

func toLinkBody(l links.Link) LinkBody {
	return LinkBody{Name: l.Name, URL: l.URL, VisitCount: l.VisitCount}
}

// ListLinksResponse lists every link ordered by name.
type ListLinksResponse struct {
	Body struct {
		Links []LinkBody `doc:"All links" json:"links"`
	}
}

// CreateLinkRequest is the request body for creating a link.
type CreateLinkRequest struct {
	Body struct {
		Name string `doc:"Short name"      example:"docs"                     json:"name"`
		URL  string `doc:"Destination URL" example:"https://docs.example.com" json:"url"`
	}
}

// LinkResponse returns a single link.
type LinkResponse struct {
	Location string `doc:"Where the short name lives" header:"Location"`
	Body     LinkBody
}

// UpdateLinkRequest renames and/or repoints an existing link.
type UpdateLinkRequest struct {
	Body struct {
		OriginalName string `doc:"Name the link has now"  example:"docs"                     json:"originalName"`
		Name         string `doc:"Name the link will get" example:"handbook"                 json:"name"`
		URL          string `doc:"Destination URL"        example:"https://docs.example.com" json:"url"`
	}
}

// DeleteLinkRequest names the link to remove.
type DeleteLinkRequest struct {
	Name string `doc:"Short name" example:"docs" query:"name" required:"true"`
}

// ResolveRequest asks where a path would redirect.
type ResolveRequest struct {
	Name  string `doc:"Requested path, may contain slashes" example:"docs/api" query:"name" required:"true"`
	Query string `doc:"Raw query string to forward"         example:"q=search" query:"query"`
}

// ResolveResponse describes where a path would redirect.
type ResolveResponse struct {
	Body struct {
		Found         bool   `doc:"Whether a link matched"                 json:"found"`
		Name          string `doc:"Name of the matching link"              json:"name,omitempty"`
		Target        string `doc:"Redirect target"                        json:"target,omitempty"`
		SuggestedName string `doc:"Name offered for creation when missing" json:"suggestedName,omitempty"`
	}
}
