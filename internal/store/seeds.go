package store

import "github.com/discgeo/discgeo/internal/model"

// StateRefs is the Census FIPS reference table for the 50 states plus
// the District of Columbia. County attribute records carry the numeric
// state code; ingestion resolves it to a name through this table.
var StateRefs = []model.StateRef{
	{Number: 1, FullName: "Alabama", Abbreviation: "AL"},
	{Number: 2, FullName: "Alaska", Abbreviation: "AK"},
	{Number: 4, FullName: "Arizona", Abbreviation: "AZ"},
	{Number: 5, FullName: "Arkansas", Abbreviation: "AR"},
	{Number: 6, FullName: "California", Abbreviation: "CA"},
	{Number: 8, FullName: "Colorado", Abbreviation: "CO"},
	{Number: 9, FullName: "Connecticut", Abbreviation: "CT"},
	{Number: 10, FullName: "Delaware", Abbreviation: "DE"},
	{Number: 11, FullName: "District of Columbia", Abbreviation: "DC"},
	{Number: 12, FullName: "Florida", Abbreviation: "FL"},
	{Number: 13, FullName: "Georgia", Abbreviation: "GA"},
	{Number: 15, FullName: "Hawaii", Abbreviation: "HI"},
	{Number: 16, FullName: "Idaho", Abbreviation: "ID"},
	{Number: 17, FullName: "Illinois", Abbreviation: "IL"},
	{Number: 18, FullName: "Indiana", Abbreviation: "IN"},
	{Number: 19, FullName: "Iowa", Abbreviation: "IA"},
	{Number: 20, FullName: "Kansas", Abbreviation: "KS"},
	{Number: 21, FullName: "Kentucky", Abbreviation: "KY"},
	{Number: 22, FullName: "Louisiana", Abbreviation: "LA"},
	{Number: 23, FullName: "Maine", Abbreviation: "ME"},
	{Number: 24, FullName: "Maryland", Abbreviation: "MD"},
	{Number: 25, FullName: "Massachusetts", Abbreviation: "MA"},
	{Number: 26, FullName: "Michigan", Abbreviation: "MI"},
	{Number: 27, FullName: "Minnesota", Abbreviation: "MN"},
	{Number: 28, FullName: "Mississippi", Abbreviation: "MS"},
	{Number: 29, FullName: "Missouri", Abbreviation: "MO"},
	{Number: 30, FullName: "Montana", Abbreviation: "MT"},
	{Number: 31, FullName: "Nebraska", Abbreviation: "NE"},
	{Number: 32, FullName: "Nevada", Abbreviation: "NV"},
	{Number: 33, FullName: "New Hampshire", Abbreviation: "NH"},
	{Number: 34, FullName: "New Jersey", Abbreviation: "NJ"},
	{Number: 35, FullName: "New Mexico", Abbreviation: "NM"},
	{Number: 36, FullName: "New York", Abbreviation: "NY"},
	{Number: 37, FullName: "North Carolina", Abbreviation: "NC"},
	{Number: 38, FullName: "North Dakota", Abbreviation: "ND"},
	{Number: 39, FullName: "Ohio", Abbreviation: "OH"},
	{Number: 40, FullName: "Oklahoma", Abbreviation: "OK"},
	{Number: 41, FullName: "Oregon", Abbreviation: "OR"},
	{Number: 42, FullName: "Pennsylvania", Abbreviation: "PA"},
	{Number: 44, FullName: "Rhode Island", Abbreviation: "RI"},
	{Number: 45, FullName: "South Carolina", Abbreviation: "SC"},
	{Number: 46, FullName: "South Dakota", Abbreviation: "SD"},
	{Number: 47, FullName: "Tennessee", Abbreviation: "TN"},
	{Number: 48, FullName: "Texas", Abbreviation: "TX"},
	{Number: 49, FullName: "Utah", Abbreviation: "UT"},
	{Number: 50, FullName: "Vermont", Abbreviation: "VT"},
	{Number: 51, FullName: "Virginia", Abbreviation: "VA"},
	{Number: 53, FullName: "Washington", Abbreviation: "WA"},
	{Number: 54, FullName: "West Virginia", Abbreviation: "WV"},
	{Number: 55, FullName: "Wisconsin", Abbreviation: "WI"},
	{Number: 56, FullName: "Wyoming", Abbreviation: "WY"},
}
