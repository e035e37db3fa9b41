package cfaws

import (
	"fmt"
	"strconv"
	"strings"
)

type regionPart struct {
	short string
	long  string
}

// two letter forms come before the one letter form they start with
var regionMajors = []regionPart{
	{"ug", "us-gov"}, {"us", "us"}, {"u", "us"},
	{"eu", "eu"}, {"e", "eu"},
	{"af", "af"}, {"ap", "ap"}, {"a", "ap"},
	{"cn", "cn"}, {"ca", "ca"}, {"c", "ca"},
	{"me", "me"}, {"m", "me"},
	{"sa", "sa"}, {"s", "sa"},
}

var regionMinors = []regionPart{
	{"nw", "northwest"}, {"ne", "northeast"}, {"sw", "southwest"}, {"se", "southeast"},
	{"n", "north"}, {"s", "south"}, {"e", "east"}, {"w", "west"}, {"c", "central"},
}

func cutRegionPart(s string, parts []regionPart) (long string, rest string, ok bool) {
	for _, p := range parts {
		if after, found := strings.CutPrefix(s, p.short); found {
			return p.long, after, true
		}
	}
	return "", s, false
}

// ExpandRegion expands short region names such as 'ue1' or 'ase2' to 'us-east-1' and
// 'ap-southeast-2'. Names containing a dash are returned as they are, and the number
// defaults to 1 ('usw' is 'us-west-1'). An empty region is DefaultRegion.
func ExpandRegion(region string) (string, error) {
	if region == "" {
		return DefaultRegion, nil
	}
	if strings.Contains(region, "-") {
		return region, nil
	}
	if len(region) < 2 {
		return "", fmt.Errorf("region too short, needs at least two characters (eg ue)")
	}

	major, rest, ok := cutRegionPart(region, regionMajors)
	if !ok {
		return "", fmt.Errorf("unknown region major in %s (hint: try using the first letter of the region)", region)
	}
	minor, rest, ok := cutRegionPart(rest, regionMinors)
	if !ok {
		return "", fmt.Errorf("unknown region minor in %s (found major: %s)", region, major)
	}

	num := "1"
	if rest != "" {
		if _, err := strconv.Atoi(rest); err != nil {
			return "", fmt.Errorf("unknown region number in %s (found major: %s, minor: %s)", region, major, minor)
		}
		num = rest
	}
	return major + "-" + minor + "-" + num, nil
}
