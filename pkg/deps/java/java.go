package java

import (
	"time"

	"github.com/matzehuels/shed/pkg/deps"
)

// Strategy names.
const (
	mavenTGFName   = "maven-tgf"
	gradleDepsName = "gradle-deps"
	pomXMLName     = "pom-xml"
)

// Language provides the JVM strategies.
var Language = &deps.Language{
	Name:      "java",
	Ecosystem: deps.EcosystemMaven,
	Strategies: []*deps.Strategy{
		MavenTGF,
		GradleDeps,
		PomXML,
	},
}

// MavenTGF resolves the full tree with the maven-dependency-plugin.
var MavenTGF = &deps.Strategy{
	Name:      mavenTGFName,
	Ecosystem: deps.EcosystemMaven,
	Command: `out=$(mktemp)
mvn -B -q dependency:tree -DoutputType=tgf -DoutputFile="$out" -DappendOutput=true >/dev/null 2>&1
cat "$out"`,
	Manifests: []string{"pom.xml"},
	Timeout:   20 * time.Minute,
	Parse:     parseTGF,
}

// GradleDeps prints the runtime classpath tree.
var GradleDeps = &deps.Strategy{
	Name:      gradleDepsName,
	Ecosystem: deps.EcosystemMaven,
	Command: `if [ -x ./gradlew ]; then g=./gradlew; else g=gradle; fi
$g -q dependencies --configuration runtimeClasspath 2>/dev/null`,
	Manifests: []string{"build.gradle", "build.gradle.kts"},
	Timeout:   20 * time.Minute,
	Parse:     parseGradle,
}

// PomXML reads the dependencies declared in pom.xml.
var PomXML = &deps.Strategy{
	Name:      pomXMLName,
	Ecosystem: deps.EcosystemMaven,
	Command:   "cat pom.xml",
	Manifests: []string{"pom.xml"},
	Timeout:   time.Minute,
	Parse:     parsePOM,
}

func coordinate(groupID, artifactID string) string {
	return groupID + ":" + artifactID
}
